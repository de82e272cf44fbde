package dealservice

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

var errNoDeals = errors.New("no deals collected from any source")

// PipelineError lets you set IsNonCritical when the run should
// carry on, a failed source must never sink its siblings.
type PipelineError struct {
	IsNonCritical bool
	Message       error
}

// Error implements the error interface
func (e PipelineError) Error() string {
	return fmt.Sprintf("Error:%s, IsNonCritical: %t", e.Message, e.IsNonCritical)
}

// PipelineErrors collects errors across pipeline stages and
// remembers whether any of them was critical.
type PipelineErrors struct {
	Errors   []error
	Critical bool
	mux      *sync.Mutex
}

// NewPE builds a collector sharing the service mutex
func NewPE(mux *sync.Mutex) PipelineErrors {
	return PipelineErrors{
		mux: mux,
	}
}

// Log appends the error under its stage name. Plain errors are
// treated as critical, wrap them in a PipelineError to downgrade.
func (pe *PipelineErrors) Log(e error, stageName string) {
	if e == nil {
		return
	}

	pe.mux.Lock()
	defer pe.mux.Unlock()

	if err, ok := e.(PipelineError); ok {
		err.Message = fmt.Errorf("%s - %v", stageName, err.Message)
		pe.Errors = append(pe.Errors, err)

		if err.IsNonCritical {
			log.Warnf("%v", err)
			return
		}
		pe.Critical = true
		log.Errorf("%v", err)
		return
	}

	pe.Critical = true
	pe.Errors = append(pe.Errors, PipelineError{
		Message: fmt.Errorf("%s - %v", stageName, e),
	})
	log.WithFields(log.Fields{
		"stage": stageName,
		"error": e,
	}).Errorln("Pipeline stage failed")
}

// HasCritical reports whether the run can still produce output
func (pe *PipelineErrors) HasCritical() bool {
	pe.mux.Lock()
	defer pe.mux.Unlock()
	return pe.Critical
}

func (pe PipelineErrors) Error() string {
	pe.mux.Lock()
	defer pe.mux.Unlock()

	var output string
	for _, logError := range pe.Errors {
		output += logError.Error() + "\n"
	}
	return output
}
