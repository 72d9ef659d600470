package config

type WorkerKeyStruct struct {
	PersistIntegrityQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistIntegrityQueue: "persist_integrity_events_queue",
}
