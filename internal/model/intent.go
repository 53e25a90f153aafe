package model

// Intent 用户学习意图，创建旅程前必须经过 util.ValidateIntent 补全默认值
type Intent struct {
	Topic           string `json:"topic"`
	Level           string `json:"level"`
	Goal            string `json:"goal"`
	PreferredFormat string `json:"preferredFormat"`
	TimeCommitment  string `json:"timeCommitment"`
}

// SearchResult 搜索提供方的标准化输出，不落库
type SearchResult struct {
	Title   string       `json:"title"`
	URL     string       `json:"url"`
	Snippet string       `json:"snippet"`
	Type    ResourceType `json:"type"`
}
