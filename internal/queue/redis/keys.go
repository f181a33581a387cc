package redis

// All keys live under "hiretrack:queue:{topic}:".
const keyPrefix = "hiretrack:queue:"

type keys struct {
	ready      string
	processing string
	delayed    string
	dead       string
}

func keysFor(topic string) keys {
	base := keyPrefix + topic + ":"
	return keys{
		ready:      base + "ready",
		processing: base + "processing",
		delayed:    base + "delayed",
		dead:       base + "dead",
	}
}
