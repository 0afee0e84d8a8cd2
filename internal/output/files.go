package output

import (
	"os"

	"github.com/systmms/smpull/internal/resolve"
)

// EnvFileName is the file the EnvFile sink appends to.
const EnvFileName = ".env"

const outputFileMode = 0o600

type envFileSink struct{}

func (envFileSink) Flush(secret resolve.Secret, fc *FlushContext) error {
	return appendFile(fc.path(EnvFileName), secret.Property+"="+secret.Value+"\n")
}

type rawFileSink struct{}

func (rawFileSink) Flush(secret resolve.Secret, fc *FlushContext) error {
	return appendFile(fc.path(secret.Property), secret.Value)
}

func appendFile(path, content string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, outputFileMode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = f.WriteString(content)
	return err
}
