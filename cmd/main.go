package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/kennrick69/locacar/internal/auth"
	"github.com/kennrick69/locacar/internal/cobranca"
	"github.com/kennrick69/locacar/internal/config"
	"github.com/kennrick69/locacar/internal/gateway"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/motorista"
	"github.com/kennrick69/locacar/internal/notificacao"
	"github.com/kennrick69/locacar/internal/pagamento"
	"github.com/kennrick69/locacar/internal/politica"
	"github.com/kennrick69/locacar/internal/rescisao"
	"github.com/kennrick69/locacar/internal/scheduler"
	"github.com/kennrick69/locacar/internal/utils/db"
	"github.com/kennrick69/locacar/internal/webhook"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		log.Fatal("main", "configuração inválida: %v", err)
	}

	database, err := db.GetDB(cfg.DB)
	if err != nil {
		log.Fatal("main", "erro ao conectar no banco: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pol, err := politica.Carregar(ctx, politica.EnvStore{})
	if err != nil {
		log.Fatal("main", "política de cobrança inválida: %v", err)
	}
	gw, err := gateway.Novo(cfg.Gateway, cfg.Producao(), log)
	if err != nil {
		log.Fatal("main", "%v", err)
	}
	emissor := novoEmissor(cfg, log)

	// Serviços
	mot := motorista.NewService(database, pol, log)
	cob := cobranca.NewService(database, mot, pol, log)
	cob.Local = cfg.Location()
	led := pagamento.NewLedger(database, mot, cob, pol, log)
	cob.Liquidacao = led
	intencoes := gateway.NewService(database, gw, mot, cob, led, pol, log)
	resc := rescisao.NewService(database, mot, cob, led, log)
	rec := webhook.NewReconciliador(database, mot, cob, led, notificacao.NovoCadastro(cfg.Cadastro, log), log)

	worker := webhook.NewWorker(database, rec, gw, cfg.Webhook.Fila, log)
	worker.Iniciar(ctx, cfg.Webhook.Workers)

	var sch *scheduler.Scheduler
	if cfg.Scheduler.Habilitado {
		sch = scheduler.New(cfg.Scheduler, cfg.Location(), mot, cob, intencoes, rec, worker, log)
		if err := sch.Iniciar(ctx); err != nil {
			log.Fatal("main", "scheduler: %v", err)
		}
	}

	// Handlers
	motoristaHandler := motorista.NewHandler(mot)
	cobrancaHandler := cobranca.NewHandler(cob)
	pagamentoHandler := pagamento.NewHandler(led)
	gatewayHandler := gateway.NewHandler(intencoes)
	rescisaoHandler := rescisao.NewHandler(resc)
	webhookHandler := webhook.NewHandler(database, worker, rec, cfg.Webhook.Secret, log)

	// Router
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	r.HandleFunc("/webhook/gateway", webhookHandler.Receber).Methods("POST")

	api := r.NewRoute().Subrouter()
	api.Use(emissor.Middleware)
	admin := auth.RequireAdminFunc

	// Rotas de motoristas
	api.HandleFunc("/motoristas", motoristaHandler.Registrar).Methods("POST")
	api.HandleFunc("/motoristas", admin(motoristaHandler.Listar)).Methods("GET")
	api.HandleFunc("/motoristas/{id}", motoristaHandler.BuscarPorID).Methods("GET")
	api.HandleFunc("/motoristas/{id}/eventos", motoristaHandler.AplicarEvento).Methods("POST")
	api.HandleFunc("/motoristas/{id}/veiculo", admin(motoristaHandler.AtribuirVeiculo)).Methods("PUT")
	api.HandleFunc("/motoristas/{id}/contrato", admin(motoristaHandler.ConfirmarContrato)).Methods("PUT")

	// Rotas de cobranças
	api.HandleFunc("/motoristas/{id}/cobrancas", cobrancaHandler.ListarPorMotorista).Methods("GET")
	api.HandleFunc("/motoristas/{id}/cobrancas/gerar", admin(cobrancaHandler.Gerar)).Methods("POST")
	api.HandleFunc("/motoristas/{id}/multas/avaliar", admin(cobrancaHandler.AvaliarMultas)).Methods("POST")
	api.HandleFunc("/cobrancas", admin(cobrancaHandler.CriarAvulsa)).Methods("POST")
	api.HandleFunc("/cobrancas/{id}", cobrancaHandler.BuscarPorID).Methods("GET")
	api.HandleFunc("/cobrancas/{id}/descontos", cobrancaHandler.SolicitarDesconto).Methods("POST")
	api.HandleFunc("/cobrancas/{id}/acrescimos", admin(cobrancaHandler.AdicionarAcrescimo)).Methods("POST")
	api.HandleFunc("/descontos/{id}/aprovar", admin(cobrancaHandler.AprovarDesconto)).Methods("POST")

	// Rotas do livro de pagamentos
	api.HandleFunc("/cobrancas/{id}/pagamentos", admin(pagamentoHandler.RegistrarManual)).Methods("POST")
	api.HandleFunc("/cobrancas/{id}/pagamentos", pagamentoHandler.ListarManuais).Methods("GET")
	api.HandleFunc("/pagamentos-manuais/{id}", admin(pagamentoHandler.ExcluirManual)).Methods("DELETE")
	api.HandleFunc("/motoristas/{id}/saldo", pagamentoHandler.Saldo).Methods("GET")
	api.HandleFunc("/motoristas/{id}/caucao", pagamentoHandler.Caucao).Methods("GET")

	// Rotas do gateway
	api.HandleFunc("/pagamentos", gatewayHandler.CriarIntencao).Methods("POST")
	api.HandleFunc("/pagamentos/{id}", gatewayHandler.BuscarPorID).Methods("GET")
	api.HandleFunc("/pagamentos/{id}/regenerar", gatewayHandler.Regenerar).Methods("POST")
	api.HandleFunc("/pagamentos/{id}/confirmar", admin(webhookHandler.Confirmar)).Methods("POST")
	api.HandleFunc("/motoristas/{id}/pagamentos", gatewayHandler.ListarPorMotorista).Methods("GET")
	api.HandleFunc("/parcelamento", gatewayHandler.Parcelamento).Methods("GET")
	api.HandleFunc("/webhook/pendencias", admin(webhookHandler.Pendencias)).Methods("GET")

	// Rotas de rescisão
	api.HandleFunc("/motoristas/{id}/rescisao", admin(rescisaoHandler.Liquidar)).Methods("POST")
	api.HandleFunc("/motoristas/{id}/rescisao", rescisaoHandler.Buscar).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("main", "servidor rodando em %s (%s, gateway %s)", cfg.Addr, cfg.Ambiente, gw.Nome())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("main", "servidor: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("main", "encerrando...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("main", "shutdown: %v", err)
	}
	if sch != nil {
		select {
		case <-sch.Parar().Done():
		case <-shutdownCtx.Done():
			log.Warn("main", "rotina diária ainda em execução no encerramento")
		}
	}
	worker.Parar()
}

// novoEmissor usa JWT_SECRET; em desenvolvimento, sem segredo, gera um
// temporário e loga um token de admin.
func novoEmissor(cfg config.Config, log *logger.Logger) *auth.Emissor {
	segredo := cfg.JWTSecret
	if segredo == "" && !cfg.Producao() {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatal("main", "gerar segredo: %v", err)
		}
		segredo = hex.EncodeToString(b)
	}
	emissor, err := auth.NovoEmissor(segredo, auth.AccessTTL)
	if err != nil {
		log.Fatal("main", "%v", err)
	}
	if cfg.JWTSecret == "" {
		token, err := emissor.GerarToken(0, true, 0)
		if err == nil {
			log.Warn("main", "JWT_SECRET ausente: segredo temporário; token de admin: %s", token)
		}
	}
	return emissor
}
