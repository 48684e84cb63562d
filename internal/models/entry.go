package models

import "fmt"

// Entry is one viewer's tracking record for one media item. ID is the
// record id; MediaID refers to the embedded Media snapshot.
type Entry struct {
	ID              int       `json:"id"`
	MediaID         int       `json:"mediaId"`
	Status          Status    `json:"status,omitempty"`
	Progress        *int      `json:"progress,omitempty"`
	ProgressVolumes *int      `json:"progressVolumes,omitempty"`
	Score           float64   `json:"score"`
	StartedAt       FuzzyDate `json:"startedAt"`
	CompletedAt     FuzzyDate `json:"completedAt"`
	Media           Media     `json:"media"`
}

// Clone returns a deep enough copy of e for queueing: counters and dates are
// no longer shared with the original.
func (e Entry) Clone() Entry {
	out := e
	out.Progress = cloneInt(e.Progress)
	out.ProgressVolumes = cloneInt(e.ProgressVolumes)
	out.StartedAt = FuzzyDate{Year: cloneInt(e.StartedAt.Year), Month: cloneInt(e.StartedAt.Month), Day: cloneInt(e.StartedAt.Day)}
	out.CompletedAt = FuzzyDate{Year: cloneInt(e.CompletedAt.Year), Month: cloneInt(e.CompletedAt.Month), Day: cloneInt(e.CompletedAt.Day)}
	return out
}

// UpdateProgress applies newly observed progress to e and reports whether
// anything increased. Values that do not exceed the stored counters are
// discarded.
//
// volume is the 1-indexed volume currently being read; the stored counter is
// the number of completed volumes, so volume-1 is what gets compared and
// kept. Volumes only apply to manga.
//
// On an increase, reaching progress 1 moves a current, planned, dropped or
// paused entry to current and stamps StartedAt; reaching the media's total
// marks it completed and stamps CompletedAt.
func (e *Entry) UpdateProgress(progress, volume *float64, today FuzzyDate) bool {
	if !e.Media.Type.Valid() {
		return false
	}

	updated := false
	if progress != nil {
		if n := int(*progress); n > deref(e.Progress) {
			e.Progress = &n
			updated = true
		}
	}
	if e.Media.Type == CategoryManga && volume != nil {
		if n := int(*volume) - 1; n > deref(e.ProgressVolumes) {
			e.ProgressVolumes = &n
			updated = true
		}
	}
	if !updated {
		return false
	}

	p := deref(e.Progress)
	if p == 1 {
		switch e.Status {
		case StatusCurrent, StatusPlanning, StatusDropped, StatusPaused:
			e.Status = StatusCurrent
			e.StartedAt = today
		}
	}
	if total := e.Media.Total(); total != nil && p == *total {
		e.complete(today)
	}
	if e.Media.Type == CategoryManga && e.Media.Volumes != nil && e.ProgressVolumes != nil && *e.ProgressVolumes == *e.Media.Volumes {
		e.complete(today)
	}
	return true
}

func (e *Entry) complete(today FuzzyDate) {
	e.Status = StatusCompleted
	e.CompletedAt = today
}

// ProgressString renders progress against the media total, e.g. "3 / 12".
func (e *Entry) ProgressString() string {
	return progressString(e.Progress, e.Media.Total())
}

// ProgressVolumesString renders volume progress against the volume total.
func (e *Entry) ProgressVolumesString() string {
	return progressString(e.ProgressVolumes, e.Media.Volumes)
}

func progressString(progress, total *int) string {
	t := "?"
	if total != nil {
		t = fmt.Sprint(*total)
	}
	return fmt.Sprintf("%d / %s", deref(progress), t)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
