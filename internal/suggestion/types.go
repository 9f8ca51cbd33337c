// Package suggestion defines the core types for AI task suggestions.
package suggestion

import "strings"

// Response is the top-level object produced by the suggestion engine.
type Response struct {
	Items      []Item    `json:"items"`
	Confidence *float64  `json:"confidence,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Metadata   *Metadata `json:"metadata,omitempty"`
}

// Item is one proposed unit of work.
type Item struct {
	ItemType         ItemType `json:"item_type"`
	Title            string   `json:"title"`
	ParentTaskID     *string  `json:"parentTaskId"`
	EstimatedMinutes int      `json:"estimatedMinutes"`
	Deadline         string   `json:"deadline"`
	Confidence       float64  `json:"confidence"`
	Reason           string   `json:"reason,omitempty"`
	StartUTC         string   `json:"startUtc,omitempty"`
	EndUTC           string   `json:"endUtc,omitempty"`
}

// Metadata records how the response was obtained.
type Metadata struct {
	ResponseMS *int64 `json:"response_ms,omitempty"`
	Retries    *int   `json:"retries,omitempty"`
}

// Empty returns a response with no items. Generation failures that still
// produced some output degrade to this value.
func Empty() *Response {
	return &Response{Items: []Item{}}
}

// Len returns the number of items, treating a nil response as empty.
func (r *Response) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Items)
}

// Field looks up an item field by its wire name. The second result is false
// when the field is absent.
func (it Item) Field(name string) (any, bool) {
	switch name {
	case "item_type":
		return it.ItemType, true
	case "title":
		return it.Title, it.Title != ""
	case "parentTaskId":
		if it.ParentTaskID == nil {
			return nil, false
		}
		return *it.ParentTaskID, true
	case "estimatedMinutes", "estimated_minutes":
		return it.EstimatedMinutes, it.EstimatedMinutes != 0
	case "deadline":
		return it.Deadline, it.Deadline != ""
	case "confidence":
		return it.Confidence, true
	case "reason":
		return it.Reason, it.Reason != ""
	case "startUtc":
		return it.StartUTC, it.StartUTC != ""
	case "endUtc":
		return it.EndUTC, it.EndUTC != ""
	}
	return nil, false
}

// HasParent reports whether the item names a parent task.
func (it Item) HasParent() bool {
	return it.ParentTaskID != nil && strings.TrimSpace(*it.ParentTaskID) != ""
}

// ParentID returns the parent task id, or "" when there is none.
func (it Item) ParentID() string {
	if it.ParentTaskID == nil {
		return ""
	}
	return *it.ParentTaskID
}
