package config

// Stage : one pipeline stage, only the fields its kind reads are used
//
//	kinds : create_table, drop_table, truncate_table, prefix_table, limit_import,
//	        filter_columns, delay, prompt, custom_query, custom_command, post_import
type Stage struct {
	Kind      string              `json:"kind"`
	Quiet     bool                `json:"quiet"`
	Prefix    string              `json:"prefix"`
	Separator string              `json:"separator"`
	Count     int                 `json:"count"`
	Delay     Duration            `json:"delay"`
	Prompt    string              `json:"prompt"`
	When      []string            `json:"when"`
	Query     string              `json:"query"`
	Program   string              `json:"program"`
	Args      []string            `json:"args"`
	Columns   map[string][]string `json:"columns"`
}
