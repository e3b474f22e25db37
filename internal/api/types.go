package api

// BatchResponse carries a sampled batch. X, Y and Mask are row-major with
// shape Shape.
type BatchResponse struct {
	ID      string  `json:"id"`
	Object  string  `json:"object"`
	Created int64   `json:"created_at"`
	Split   string  `json:"split"`
	Variant string  `json:"variant"`
	Index   *int    `json:"index,omitempty"`
	Shape   []int   `json:"shape"`
	X       []int64 `json:"x"`
	Y       []int64 `json:"y"`
	Mask    []bool  `json:"mask,omitempty"`
}

type LayoutResponse struct {
	Object   string `json:"object"`
	Split    string `json:"split"`
	Variant  string `json:"variant"`
	Kind     string `json:"kind"`
	Shape    []int  `json:"shape"`
	Examples int    `json:"examples"`
	Path     string `json:"path"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Dataset string `json:"dataset"`
	Variant string `json:"variant"`
	Dir     string `json:"dir"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}
