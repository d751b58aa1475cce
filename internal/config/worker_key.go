package config

// QueueKeys names the Redis lists between the practice engine and the workers.
type QueueKeys struct {
	// PersistResults carries finished runs as JSON.
	PersistResults string
	// DeadResults keeps payloads the results worker could not decode.
	DeadResults string
}

var WorkerKey = QueueKeys{
	PersistResults: "persist_results_queue",
	DeadResults:    "persist_results_dead",
}
