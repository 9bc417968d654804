package jobs

const TaskGenerateRoute = "route:generate"

// GenerateRoutePayload asks the worker to build (and write back) one
// technician's route for today.
type GenerateRoutePayload struct {
	UserID      int    `json:"user_id"`
	Provider    string `json:"provider,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	DryRun      bool   `json:"dry_run,omitempty"`
}
