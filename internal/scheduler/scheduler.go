// Package scheduler agenda a rotina diária de cobrança.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kennrick69/locacar/internal/cobranca"
	"github.com/kennrick69/locacar/internal/config"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/motorista"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const componente = "scheduler"

// Expirador marca intenções de pagamento vencidas.
type Expirador interface {
	ExpirarVencidas(ctx context.Context) (int, error)
}

// Cadastros reenvia registros externos que falharam.
type Cadastros interface {
	RetentarCadastros(ctx context.Context) (int, error)
}

// Eventos reenfileira notificações do gateway que não foram concluídas.
type Eventos interface {
	Reprocessar(ctx context.Context) (int, error)
}

// Relatorio resume uma passada da rotina.
type Relatorio struct {
	Motoristas int
	Falhas     int
	Expiradas  int
	Cadastros  int
	Eventos    int
}

type Scheduler struct {
	Motoristas *motorista.Service
	Cobrancas  *cobranca.Service
	Expirador  Expirador
	Cadastros  Cadastros
	Eventos    Eventos
	Config     config.SchedulerConfig
	Local      *time.Location
	Log        *logger.Logger
	Agora      func() time.Time

	mu     sync.Mutex
	cron   *cron.Cron
	parado context.Context
}

func New(cfg config.SchedulerConfig, loc *time.Location, motoristas *motorista.Service, cobrancas *cobranca.Service, exp Expirador, cad Cadastros, ev Eventos, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		Motoristas: motoristas,
		Cobrancas:  cobrancas,
		Expirador:  exp,
		Cadastros:  cad,
		Eventos:    ev,
		Config:     cfg,
		Local:      loc,
		Log:        log,
		Agora:      time.Now,
	}
}

// Executar faz uma passada completa. Falha de um motorista não interrompe os demais.
func (s *Scheduler) Executar(ctx context.Context) (Relatorio, error) {
	var rel Relatorio
	agora := s.Agora()

	lista, err := s.Motoristas.Listar(ctx, motorista.StatusAtivo, motorista.StatusInadimplente)
	if err != nil {
		return rel, err
	}
	rel.Motoristas = len(lista)

	var falhas int32
	g, gctx := errgroup.WithContext(ctx)
	limite := s.Config.Paralelo
	if limite < 1 {
		limite = 1
	}
	g.SetLimit(limite)
	for _, m := range lista {
		id := m.ID
		g.Go(func() error {
			if err := s.Cobrancas.Processar(gctx, id, agora); err != nil {
				atomic.AddInt32(&falhas, 1)
				s.Log.Error(componente, "motorista %d: %v", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rel, err
	}
	rel.Falhas = int(falhas)

	if s.Expirador != nil {
		if rel.Expiradas, err = s.Expirador.ExpirarVencidas(ctx); err != nil {
			s.Log.Error(componente, "expirar intenções: %v", err)
		}
	}
	if s.Cadastros != nil {
		if rel.Cadastros, err = s.Cadastros.RetentarCadastros(ctx); err != nil {
			s.Log.Warn(componente, "retentar cadastros: %v", err)
		}
	}
	if s.Eventos != nil {
		if rel.Eventos, err = s.Eventos.Reprocessar(ctx); err != nil {
			s.Log.Warn(componente, "reprocessar notificações: %v", err)
		}
	}

	s.Log.Info(componente, "rotina concluída: %d motorista(s), %d falha(s), %d intenção(ões) expirada(s), %d cadastro(s)",
		rel.Motoristas, rel.Falhas, rel.Expiradas, rel.Cadastros)
	return rel, nil
}

// Spec é a expressão cron da rotina diária.
func (s *Scheduler) Spec() string {
	return fmt.Sprintf("%d %d * * *", s.Config.Minuto, s.Config.Hora)
}

// Proxima devolve o horário da próxima execução a partir de agora.
func (s *Scheduler) Proxima(agora time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(s.Spec())
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(agora.In(s.Local)), nil
}

// Iniciar agenda a rotina diária no fuso configurado. Uma execução que ainda
// não terminou faz a seguinte ser pulada. O agendador para quando ctx termina.
func (s *Scheduler) Iniciar(ctx context.Context) error {
	log := cronLogger{s.Log}
	c := cron.New(
		cron.WithLocation(s.Local),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := c.AddFunc(s.Spec(), func() {
		if _, err := s.Executar(ctx); err != nil {
			s.Log.Error(componente, "rotina diária: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("agendar rotina %q: %w", s.Spec(), err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	c.Start()
	if prox, err := s.Proxima(s.Agora()); err == nil {
		s.Log.Info(componente, "scheduler iniciado: %q (%s), próxima execução %s", s.Spec(), s.Local, prox.Format(time.RFC3339))
	}

	go func() {
		<-ctx.Done()
		s.Parar()
	}()
	return nil
}

// Parar desliga o agendador. O contexto devolvido termina quando a execução
// em andamento, se houver, acabar.
func (s *Scheduler) Parar() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parado != nil {
		return s.parado
	}
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s.parado = ctx
		return ctx
	}
	s.parado = s.cron.Stop()
	s.Log.Info(componente, "scheduler encerrado")
	return s.parado
}

// cronLogger leva as mensagens do cron para o logger da aplicação.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(componente, "cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(componente, "cron: %s: %v %v", msg, err, keysAndValues)
}
