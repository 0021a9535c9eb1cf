package limits

// JSON size limits for API payloads and responses

const (
	// JSON is the standard size limit for API request/response payloads (1MB)
	JSON = 1 << 20

	// DownstreamBody is the maximum size read from the downstream execution
	// service when relaying its response to callers (256KB)
	DownstreamBody = 256 << 10
)
