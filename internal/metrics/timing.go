package metrics

import (
	"log"
	"time"
)

// Time logs how long an operation took. Use it as
//
//	defer metrics.Time("[OPTIMIZER] resolve")(&err)
func Time(name string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		dur := time.Since(start)
		if errp != nil && *errp != nil {
			log.Printf("%s dur=%dms err=%v", name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("%s dur=%dms", name, dur.Milliseconds())
	}
}
