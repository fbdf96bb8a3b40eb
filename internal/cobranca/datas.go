package cobranca

import "time"

// Dia devolve a data civil de t no fuso de cobrança, como meia-noite UTC.
// Todas as datas de referência são gravadas nesse formato.
func Dia(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DiasEntre conta dias de calendário de a até b (negativo se b for antes).
func DiasEntre(a, b time.Time) int {
	return int(Dia(b, time.UTC).Sub(Dia(a, time.UTC)).Hours() / 24)
}

func chaveSemana(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
