package chunkjson

import (
	"fmt"
	"io"
	"sync"

	eng "github.com/reoring/chunkjson/internal/engine"
	gojsonsrc "github.com/reoring/chunkjson/source/gojson"
	jsonsrc "github.com/reoring/chunkjson/source/json"
)

// Exported aliases so third-party drivers can produce tokens without
// importing internal packages.
type (
	TokenKind   = eng.Kind
	Token       = eng.Token
	TokenSource = eng.TokenSource
)

const (
	TokenBeginObject = eng.KindBeginObject
	TokenEndObject   = eng.KindEndObject
	TokenBeginArray  = eng.KindBeginArray
	TokenEndArray    = eng.KindEndArray
	TokenKey         = eng.KindKey
	TokenString      = eng.KindString
	TokenNumber      = eng.KindNumber
	TokenBool        = eng.KindBool
	TokenNull        = eng.KindNull
)

// Driver names accepted by DriverByName.
const (
	DriverGoJSON = "go-json"
	DriverStdlib = "encoding/json"
)

// JSONDriver turns the JSON text of one input line into a TokenSource. The
// default implementation is backed by github.com/goccy/go-json and may be
// swapped with SetJSONDriver.
type JSONDriver interface {
	NewReader(r io.Reader) TokenSource
	NewBytes(b []byte) TokenSource
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = goJSONDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil values are ignored.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		return
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
}

// UseDefaultJSONDriver restores the go-json backed driver.
func UseDefaultJSONDriver() { SetJSONDriver(goJSONDriver{}) }

func getJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	d := currentJSONDriver
	jsonDriverMu.RUnlock()
	return d
}

// DriverByName returns the built-in driver registered under name. An empty
// name selects the current global driver.
func DriverByName(name string) (JSONDriver, error) {
	switch name {
	case "":
		return getJSONDriver(), nil
	case DriverGoJSON:
		return goJSONDriver{}, nil
	case DriverStdlib:
		return stdJSONDriver{}, nil
	default:
		return nil, fmt.Errorf("chunkjson: unknown JSON driver %q", name)
	}
}

type goJSONDriver struct{}

func (goJSONDriver) NewReader(r io.Reader) TokenSource { return gojsonsrc.NewReader(r) }
func (goJSONDriver) NewBytes(b []byte) TokenSource     { return gojsonsrc.NewBytes(b) }
func (goJSONDriver) Name() string                      { return DriverGoJSON }

type stdJSONDriver struct{}

func (stdJSONDriver) NewReader(r io.Reader) TokenSource { return jsonsrc.NewReader(r) }
func (stdJSONDriver) NewBytes(b []byte) TokenSource     { return jsonsrc.NewBytes(b) }
func (stdJSONDriver) Name() string                      { return DriverStdlib }
