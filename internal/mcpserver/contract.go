package mcpserver

// PatternFormat describes the recognition pattern file so an LLM can help
// the user write custom patterns.
const PatternFormat = `# Fubuki Recognition Patterns

Patterns are Go regular expressions (RE2 syntax) matched against window
titles. They live in a YAML file with one list per category:

` + "```" + `yaml
anime:
  - '^(?P<title>.+?) - Episode (?P<episode>\d+) - mpv$'
manga:
  - '^(?P<title>.+?) Vol\. (?P<volume>\d+) Ch\. (?P<chapter>[\d.]+) - MangaDex'
  - '^(?P<title>.+?) (?P<oneshot>Oneshot) - MangaDex'
` + "```" + `

## Named groups

| Group | Category | Meaning |
|---|---|---|
| ` + "`title`" + ` | both | REQUIRED. Media title, matched fuzzily against your lists. |
| ` + "`episode`" + ` | anime | Episode number. |
| ` + "`chapter`" + ` | manga | Chapter number, may be fractional (39.1). |
| ` + "`volume`" + ` | manga | Volume currently being read. |
| ` + "`oneshot`" + ` | manga | Any non-empty capture marks a oneshot. |

## Rules

1. Anime patterns are tried before manga patterns; within a list the first
   matching pattern wins.
2. The custom file is appended after the defaults, so it cannot override a
   default pattern that already matches.
3. A number that fails to parse is ignored; the title is still recognized.
4. ` + "`$`" + ` is literal regex syntax; pattern files are not env-expanded.
5. Edits are picked up without a restart when watching is enabled.
`
