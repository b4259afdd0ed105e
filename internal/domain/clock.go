package domain

import "time"

// Clock abstrae la fuente de tiempo para poder fijarla en tests.
// Las implementaciones deben ser monótonas no-decrecientes.
type Clock interface {
	Now() time.Time
}

// SystemClock usa el reloj del sistema en UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
