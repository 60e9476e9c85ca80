// Package rpc общие для сервера и клиента имена процедур и JSON кодек
// MiddlemanService поверх Connect.
package rpc

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// ServiceName полное имя сервиса
const ServiceName = "middleman.v1.MiddlemanService"

// Процедуры сервиса
const (
	SolveProcedure    = "/" + ServiceName + "/Solve"
	BalanceProcedure  = "/" + ServiceName + "/Balance"
	ProfitsProcedure  = "/" + ServiceName + "/Profits"
	ExportProcedure   = "/" + ServiceName + "/Export"
	ValidateProcedure = "/" + ServiceName + "/Validate"
)

// Procedures возвращает все процедуры в порядке объявления
func Procedures() []string {
	return []string{
		SolveProcedure,
		BalanceProcedure,
		ProfitsProcedure,
		ExportProcedure,
		ValidateProcedure,
	}
}

// ServicePath префикс маршрута сервиса для http.ServeMux
func ServicePath() string {
	return "/" + ServiceName + "/"
}

// Codec кодирует сообщения Connect в JSON. Сообщения сервиса это обычные
// Go структуры, поэтому стандартный protojson кодек не подходит.
type Codec struct{}

var _ connect.Codec = Codec{}

// Name совпадает с именем встроенного JSON кодека и заменяет его
func (Codec) Name() string { return "json" }

// Marshal кодирует сообщение
func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

// Unmarshal декодирует сообщение; пустое тело оставляет сообщение нулевым
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
