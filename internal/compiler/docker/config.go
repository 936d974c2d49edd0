package docker

import (
	"time"
)

// Config controls the sandbox containers javac runs in.
type Config struct {
	// Image must ship a JDK (javac on PATH) and a POSIX shell.
	Image string

	// MemoryLimit in bytes. javac's JVM needs noticeably more than a
	// scripting runtime.
	MemoryLimit int64

	// CPULimit as a fraction of one core.
	CPULimit float64

	// Timeout bounds a single compilation.
	Timeout time.Duration

	// PoolSize is the number of pre-warmed containers kept ready.
	PoolSize int

	// TmpfsSize is the size option of the writable /tmp mount; the root
	// filesystem is read-only.
	TmpfsSize string
}

func DefaultConfig() Config {
	return Config{
		Image:       "eclipse-temurin:21-jdk-alpine",
		MemoryLimit: 512 * 1024 * 1024,
		CPULimit:    1.0,
		Timeout:     15 * time.Second,
		PoolSize:    2,
		TmpfsSize:   "64m",
	}
}
