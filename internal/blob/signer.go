package blob

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrSignatureInvalid = errors.New("invalid url signature")
	ErrSignatureExpired = errors.New("url signature expired")
)

// Signer issues and checks HMAC-signed download URLs of the form
// <base>/files/<path>?expires=<unix>&sig=<hex>.
type Signer struct {
	baseURL string
	secret  []byte
	now     func() time.Time
}

func NewSigner(baseURL, secret string) *Signer {
	return &Signer{baseURL: strings.TrimRight(baseURL, "/"), secret: []byte(secret), now: time.Now}
}

func (s *Signer) Sign(path string, scope URLScope) string {
	expires := s.now().Add(scope.TTL()).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", s.mac(path, expires))
	return s.baseURL + "/files/" + (&url.URL{Path: path}).EscapedPath() + "?" + q.Encode()
}

// Verify checks the expires and sig query values issued for path.
func (s *Signer) Verify(path, expires, sig string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad expiry", ErrSignatureInvalid)
	}
	want := s.mac(path, exp)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return ErrSignatureInvalid
	}
	if s.now().Unix() > exp {
		return ErrSignatureExpired
	}
	return nil
}

func (s *Signer) mac(path string, expires int64) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
