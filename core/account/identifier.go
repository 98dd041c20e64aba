package account

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/ebusmomentum88/school-portal-backend/core"
)

const (
	studentIdentifierWidth = 4

	teacherSuffixMin = 100
	teacherSuffixMax = 999
)

var nonAlphaRegex = regexp.MustCompile(`[^a-z0-9]`)

// teacherSuffix draws a suffix in [teacherSuffixMin, teacherSuffixMax].
// Safe for concurrent use.
func teacherSuffix() int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(teacherSuffixMax-teacherSuffixMin+1)))
	if err != nil {
		panic(err) // rand.Reader is unreadable
	}
	return teacherSuffixMin + int(n.Int64())
}

// StudentIdentifier formats an allocated ordinal as a zero-padded roll
// number, e.g. 1 -> "0001".
func StudentIdentifier(ordinal uint) string {
	return fmt.Sprintf("%0*d", studentIdentifierWidth, ordinal)
}

// TeacherIdentifier derives a login handle from a human name: lowercase
// surname plus a 3-digit random disambiguating suffix. Collisions are
// possible; the provisioner regenerates on a duplicate-handle rejection.
func TeacherIdentifier(name string) string {
	fields := strings.Fields(core.CleanString(name, true /* lower */))
	surname := "teacher"
	if len(fields) > 0 {
		if s := nonAlphaRegex.ReplaceAllString(fields[len(fields)-1], ""); s != "" {
			surname = s
		}
	}
	return fmt.Sprintf("%s%d", surname, teacherSuffix())
}

// PasswordPolicy issues the initial password of a freshly provisioned
// account. The password is flagged temporary and must be changed on first
// login regardless of policy.
type PasswordPolicy interface {
	InitialPassword(role string) (string, error)
}

// StaticPasswordPolicy issues well-known per-role defaults. This preserves
// the legacy behavior; prefer RandomPasswordPolicy outside of DEV.
type StaticPasswordPolicy struct {
	Teacher string
	Student string
}

func (p StaticPasswordPolicy) InitialPassword(role string) (string, error) {
	switch role {
	case RoleTeacher, RoleAdmin:
		return p.Teacher, nil
	case RoleStudent:
		return p.Student, nil
	}
	return "", errors.Errorf("no default password for role %q", role)
}

// RandomPasswordPolicy issues a random temporary password per account.
type RandomPasswordPolicy struct {
	Length int
}

const pwdAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (p RandomPasswordPolicy) InitialPassword(string) (string, error) {
	length := p.Length
	if length <= 0 {
		length = 12
	}
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pwdAlphabet))))
		if err != nil {
			return "", errors.Wrap(err, "generating temporary password")
		}
		sb.WriteByte(pwdAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NewPasswordPolicy picks the policy configured for this environment.
func NewPasswordPolicy(conf core.ProvisioningConfig) PasswordPolicy {
	if conf.RandomPasswords {
		return RandomPasswordPolicy{}
	}
	return StaticPasswordPolicy{Teacher: conf.TeacherPassword, Student: conf.StudentPassword}
}
