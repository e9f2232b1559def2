package entities

// ProgressSnapshot is the computed completion state for a (user, repository)
// pair at a point in time.
type ProgressSnapshot struct {
	TotalFiles      int     `json:"total_files"`
	ViewedFiles     int     `json:"viewed_files"`
	FilesPercent    float64 `json:"files_percent"`
	TotalKeyFiles   int     `json:"total_key_files"`
	ViewedKeyFiles  int     `json:"viewed_key_files"`
	KeyFilesPercent float64 `json:"key_files_percent"`
}
