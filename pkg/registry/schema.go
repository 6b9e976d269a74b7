// Package registry describes the catalog of BPMN service task activities this
// platform implements. The registry-updater and worker-generator tools read
// and edit the catalog; workflow authors use it to see which task types exist
// and what variables they exchange.
package registry

// ActivityRegistry is the top-level catalog document.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity documents one service task worker. Category groups workers the way
// internal/workers/ is laid out: "credit" for the scoring and loan matching
// tasks, "advisory" for the weather and notification tasks.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}
