package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	MachineCount  int `json:"machine_count"`
	OKCount       int `json:"ok_count"`
	WarningCount  int `json:"warning_count"`
	CriticalCount int `json:"critical_count"`
	OfflineCount  int `json:"offline_count"`
	AlertCount    int `json:"alert_count"`
}
