package models

// SearchMode selects how the search gateway builds and resolves a query.
type SearchMode string

const (
	SearchModeExact  SearchMode = "exact"
	SearchModeRandom SearchMode = "random"
	SearchModeCustom SearchMode = "custom"
)

// SearchRequest carries the query parameters of the image endpoints.
type SearchRequest struct {
	Grade   string     `form:"grade"`
	Subject string     `form:"subject"`
	Prompt  string     `form:"prompt"`
	Query   string     `form:"query"`
	Mode    SearchMode `form:"-"`
}

// ImageResult is one image returned by the search provider.
type ImageResult struct {
	Title     string `json:"title"`
	Original  string `json:"original"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Source    string `json:"source,omitempty"`
}

// SearchResult is the reshaped response of the image endpoints.
type SearchResult struct {
	Title           string     `json:"title"`
	ImageURL        string     `json:"image_url"`
	Caption         string     `json:"caption,omitempty"`
	Query           string     `json:"query"`
	Mode            SearchMode `json:"mode"`
	Role            UserRole   `json:"role"`
	TeacherApproved bool       `json:"teacher_approved"`
	CacheHit        bool       `json:"-"`
}

// IndexResponse backs the landing endpoint for authenticated users.
type IndexResponse struct {
	User    UserInfo `json:"user"`
	Catalog Catalog  `json:"catalog"`
}
