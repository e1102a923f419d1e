package policy_test

import (
	"testing"

	"github.com/reglet-dev/hostbridge/domain/policy"
)

func FuzzEnvPolicy(f *testing.F) {
	p := policy.NewEnvPolicy([]string{"HOME", "AWS_*", "{A,B}_TOKEN"})
	f.Add("HOME")
	f.Add("AWS_SECRET_ACCESS_KEY")
	f.Add("B_TOKEN")
	f.Add("../etc/passwd")

	f.Fuzz(func(t *testing.T, name string) {
		// We just ensure it doesn't panic
		p.Allowed(name)
	})
}

func FuzzEnvPolicyPatterns(f *testing.F) {
	f.Add("AWS_*")
	f.Add("[")
	f.Add("{a,")

	f.Fuzz(func(t *testing.T, pattern string) {
		policy.NewEnvPolicy([]string{pattern}).Allowed("AWS_REGION")
	})
}
