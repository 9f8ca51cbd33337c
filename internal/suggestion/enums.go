package suggestion

import "fmt"

// ItemType distinguishes standalone tasks from checklist entries.
type ItemType int

const (
	ItemTypeTask      ItemType = 0
	ItemTypeChecklist ItemType = 1
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeTask, ItemTypeChecklist:
		return true
	}
	return false
}

func (t ItemType) String() string {
	switch t {
	case ItemTypeTask:
		return "task"
	case ItemTypeChecklist:
		return "checklist"
	default:
		return fmt.Sprintf("item_type(%d)", int(t))
	}
}

// Status is the outcome of evaluating one scenario.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

func (s Status) Valid() bool {
	return s == StatusPass || s == StatusFail
}

// DeadlineLayout is the canonical wire form of item deadlines.
const DeadlineLayout = "2006-01-02T15:04:05Z"
