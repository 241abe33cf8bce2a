package domain

type Todo struct {
	ID          int64
	Title       string
	Description string
	Done        bool
	CreatedAt   int64
}

// ToMap returns the mutable columns of a todo, keyed by column name.
func (t *Todo) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"title":       t.Title,
		"description": t.Description,
		"done":        BoolToInt(t.Done),
	}
}

func BoolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
