package catalog

import "fmt"

// Kind identifies a tree level. Values match the backing table names so
// they can travel unchanged through URLs and delete calls.
type Kind string

const (
	KindCourse  Kind = "courses"
	KindBatch   Kind = "batches"
	KindChapter Kind = "chapters"
	KindContent Kind = "chapter_contents"
)

// Kinds lists the levels from the root down.
var Kinds = []Kind{KindCourse, KindBatch, KindChapter, KindContent}

// ParseKind accepts the table name or the singular form.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "courses", "course":
		return KindCourse, nil
	case "batches", "batch":
		return KindBatch, nil
	case "chapters", "chapter":
		return KindChapter, nil
	case "chapter_contents", "contents", "content":
		return KindContent, nil
	}
	return "", fmt.Errorf("unknown catalog kind %q", s)
}

// Depth is 0 for courses and 3 for contents.
func (k Kind) Depth() int {
	for i, known := range Kinds {
		if k == known {
			return i
		}
	}
	return -1
}

// Parent returns the owning level, or "" for courses.
func (k Kind) Parent() Kind {
	if d := k.Depth(); d > 0 {
		return Kinds[d-1]
	}
	return ""
}

// Singular is used in log lines and messages.
func (k Kind) Singular() string {
	switch k {
	case KindCourse:
		return "course"
	case KindBatch:
		return "batch"
	case KindChapter:
		return "chapter"
	case KindContent:
		return "content"
	}
	return string(k)
}
