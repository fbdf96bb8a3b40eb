package motorista

import (
	"time"

	"github.com/kennrick69/locacar/internal/erros"
)

type Evento string

const (
	EventoEnviarAnalise Evento = "enviar_analise"
	EventoAprovar       Evento = "aprovar"
	EventoReprovar      Evento = "reprovar"
	EventoAtivar        Evento = "ativar"
	EventoInadimplir    Evento = "inadimplir"
	EventoRegularizar   Evento = "regularizar"
	EventoRescindir     Evento = "rescindir"
	EventoRecolher      Evento = "recolher"
	EventoResetar       Evento = "resetar"
)

// origens lista, por evento, de quais status ele pode partir.
var origens = map[Evento][]Status{
	EventoEnviarAnalise: {StatusPendente},
	EventoAprovar:       {StatusEmAnalise},
	EventoReprovar:      {StatusEmAnalise},
	EventoAtivar:        {StatusAprovado},
	EventoInadimplir:    {StatusAtivo},
	EventoRegularizar:   {StatusInadimplente},
	EventoRescindir:     {StatusAtivo, StatusInadimplente},
	EventoRecolher:      {StatusRescindido},
	EventoResetar:       {StatusReprovado},
}

var destinos = map[Evento]Status{
	EventoEnviarAnalise: StatusEmAnalise,
	EventoAprovar:       StatusAprovado,
	EventoReprovar:      StatusReprovado,
	EventoAtivar:        StatusAtivo,
	EventoInadimplir:    StatusInadimplente,
	EventoRegularizar:   StatusAtivo,
	EventoRescindir:     StatusRescindido,
	EventoRecolher:      StatusRecolhido,
	EventoResetar:       StatusPendente,
}

// Eventos que só o sistema dispara (inadimplência automática e rescisão via acerto final).
var automaticos = map[Evento]bool{
	EventoInadimplir:  true,
	EventoRegularizar: true,
	EventoRescindir:   true,
}

// Manual informa se o evento pode vir de um operador pela API.
func (e Evento) Manual() bool {
	_, conhecido := destinos[e]
	return conhecido && !automaticos[e]
}

// Transicionar aplica o evento sobre uma cópia do motorista. Em caso de erro o
// original não é tocado; em caso de sucesso a cópia validada é devolvida.
func Transicionar(m Motorista, ev Evento, motivo string, agora time.Time) (Motorista, error) {
	destino, ok := destinos[ev]
	if !ok {
		return m, erros.Validacao("evento", "evento desconhecido: %q", ev)
	}
	if !contem(origens[ev], m.Status) {
		return m, erros.Transicao(string(m.Status), string(ev), "status de origem não permite o evento")
	}

	novo := m
	switch ev {
	case EventoReprovar:
		if motivo == "" {
			return m, erros.Validacao("motivo", "motivo da reprovação é obrigatório")
		}
		novo.MotivoReprovacao = motivo
	case EventoAtivar:
		if !m.CaucaoPaga {
			return m, erros.Transicao(string(m.Status), string(ev), "caução não paga")
		}
		if !m.ContratoConfirmado {
			return m, erros.Transicao(string(m.Status), string(ev), "contrato não confirmado")
		}
		if m.VeiculoID == nil {
			return m, erros.Transicao(string(m.Status), string(ev), "nenhum veículo atribuído")
		}
		if novo.DataInicio == nil {
			inicio := agora
			novo.DataInicio = &inicio
		}
	case EventoRescindir:
		fim := agora
		novo.DataRescisao = &fim
	case EventoResetar:
		novo.MotivoReprovacao = ""
	}
	novo.Status = destino

	if err := Validar(novo); err != nil {
		return m, err
	}
	return novo, nil
}

// Validar confere os invariantes do cadastro.
func Validar(m Motorista) error {
	if m.CaucaoPaga && !caucaoPermitida(m.Status) && !m.Encerrado() {
		return erros.Transicao(string(m.Status), "validar", "caução paga exige status aprovado, ativo ou inadimplente")
	}
	if m.EmOperacao() && (!m.CaucaoPaga || !m.ContratoConfirmado || m.VeiculoID == nil) {
		return erros.Transicao(string(m.Status), "validar", "motorista em operação sem caução, contrato ou veículo")
	}
	return nil
}

// MarcarCaucaoPaga liga a flag de caução. É monotônica: nunca volta a false.
// Devolve true quando houve mudança.
func MarcarCaucaoPaga(m *Motorista) (bool, error) {
	if m.CaucaoPaga {
		return false, nil
	}
	if !caucaoPermitida(m.Status) {
		return false, erros.Transicao(string(m.Status), "caucao_paga", "caução só pode ser registrada para motorista aprovado, ativo ou inadimplente")
	}
	m.CaucaoPaga = true
	return true, nil
}

func caucaoPermitida(s Status) bool {
	return s == StatusAprovado || s == StatusAtivo || s == StatusInadimplente
}

func contem(lista []Status, s Status) bool {
	for _, v := range lista {
		if v == s {
			return true
		}
	}
	return false
}
