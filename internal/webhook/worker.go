package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/gateway"
	"github.com/kennrick69/locacar/internal/logger"
	"gorm.io/gorm"
)

// Worker processa os eventos recebidos fora do ciclo da requisição HTTP:
// consulta o gateway (fonte da verdade) e reconcilia.
type Worker struct {
	DB            *gorm.DB
	Eventos       Repository
	Reconciliador *Reconciliador
	Gateway       gateway.Gateway
	Log           *logger.Logger

	// Tentativas de consulta ao gateway e espera inicial entre elas (dobra a cada falha).
	Tentativas int
	Espera     time.Duration

	fila    chan uint
	mu      sync.Mutex
	fechado bool
	ctx     context.Context
	wg      sync.WaitGroup
}

func NewWorker(db *gorm.DB, rec *Reconciliador, gw gateway.Gateway, tamanhoFila int, log *logger.Logger) *Worker {
	if tamanhoFila < 1 {
		tamanhoFila = 1
	}
	return &Worker{
		DB:            db,
		Eventos:       NewRepository(),
		Reconciliador: rec,
		Gateway:       gw,
		Log:           log,
		Tentativas:    3,
		Espera:        500 * time.Millisecond,
		fila:          make(chan uint, tamanhoFila),
		ctx:           context.Background(),
	}
}

// Iniciar sobe n goroutines consumindo a fila até Parar.
func (w *Worker) Iniciar(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for id := range w.fila {
				w.executar(ctx, id)
			}
		}()
	}
}

// Enfileirar agenda o evento. Com a fila cheia, processa numa goroutine própria.
func (w *Worker) Enfileirar(eventoID uint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fechado {
		w.Log.Warn(componente, "worker parado: evento %d fica para reprocessamento", eventoID)
		return
	}
	select {
	case w.fila <- eventoID:
	default:
		w.wg.Add(1)
		go func(ctx context.Context) {
			defer w.wg.Done()
			w.executar(ctx, eventoID)
		}(w.ctx)
	}
}

// Parar fecha a fila e espera os eventos em andamento.
func (w *Worker) Parar() {
	w.mu.Lock()
	if !w.fechado {
		w.fechado = true
		close(w.fila)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Worker) executar(ctx context.Context, eventoID uint) {
	if _, err := w.Processar(ctx, eventoID); err != nil {
		w.Log.Error(componente, "evento %d: %v", eventoID, err)
	}
}

// Processar trata um evento já gravado e atualiza seu status.
func (w *Worker) Processar(ctx context.Context, eventoID uint) (Reconciliacao, error) {
	db := w.DB.WithContext(ctx)
	e, err := w.Eventos.BuscarPorID(db, eventoID)
	if err != nil {
		return Reconciliacao{}, err
	}
	e.Tentativas++

	res, err := w.consultar(ctx, e.ExternalID)
	if err != nil {
		w.concluir(db, e, Reconciliacao{}, err)
		return Reconciliacao{}, err
	}
	rec, err := w.Reconciliador.Reconciliar(ctx, e.ExternalID, res)
	w.concluir(db, e, rec, err)
	return rec, err
}

func (w *Worker) concluir(db *gorm.DB, e *EventoGateway, rec Reconciliacao, err error) {
	agora := w.Reconciliador.Agora()
	e.ProcessadoEm = &agora
	if rec.PagamentoID != 0 {
		id := rec.PagamentoID
		e.PagamentoID = &id
	}
	switch {
	case erros.IsReconciliation(err):
		e.Status = EventoRevisao
		e.Erro = err.Error()
	case err != nil:
		e.Status = EventoErro
		e.Erro = err.Error()
	case rec.Efeito.Mudou():
		e.Status = EventoProcessado
		e.Erro = ""
	default:
		e.Status = EventoIgnorado
		e.Erro = ""
	}
	if err := w.Eventos.Salvar(db, e); err != nil {
		w.Log.Error(componente, "gravar evento %d: %v", e.ID, err)
	}
}

// consultar pergunta o status ao gateway, repetindo com espera crescente.
func (w *Worker) consultar(ctx context.Context, externalID string) (gateway.Resultado, error) {
	tentativas := w.Tentativas
	if tentativas < 1 {
		tentativas = 1
	}
	espera := w.Espera
	var ultimo error
	for i := 0; i < tentativas; i++ {
		res, err := w.Gateway.Consultar(ctx, externalID)
		if err == nil {
			return res, nil
		}
		ultimo = err
		w.Log.Warn(componente, "consultar %s (tentativa %d/%d): %v", externalID, i+1, tentativas, err)
		if i == tentativas-1 {
			break
		}
		select {
		case <-ctx.Done():
			return gateway.Resultado{}, ctx.Err()
		case <-time.After(espera):
		}
		espera *= 2
	}
	return gateway.Resultado{}, erros.Gateway("consultar", ultimo)
}

// Reprocessar reenfileira os eventos que terminaram em erro. Eventos em
// revisão ficam de fora: só o operador resolve.
func (w *Worker) Reprocessar(ctx context.Context) (int, error) {
	lista, err := w.Eventos.ListarPorStatus(w.DB.WithContext(ctx), EventoErro, EventoRecebido)
	if err != nil {
		return 0, err
	}
	for _, e := range lista {
		w.Enfileirar(e.ID)
	}
	return len(lista), nil
}
