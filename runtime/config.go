package runtime

type Configuration struct {
	LamportsPerByteYear uint64 `toml:"lamports-per-byte-year"`
	ExemptionThreshold  string `toml:"exemption-threshold"`
	QueueBatch          int    `toml:"queue-batch"`
}
