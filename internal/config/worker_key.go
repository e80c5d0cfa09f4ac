package config

type WorkerKeyStruct struct {
	BoardIntentsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	BoardIntentsQueue: "board_intents_queue",
}
