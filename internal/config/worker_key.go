package config

type WorkerKeyStruct struct {
	GradeSessionsQueue     string
	PersistViolationsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	GradeSessionsQueue:     "grade_sessions_queue",
	PersistViolationsQueue: "persist_violations_queue",
}
