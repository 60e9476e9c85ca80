package interceptors

import "connectrpc.com/connect"

// Chain объединяет интерсепторы в один; первый в списке выполняется первым
func Chain(interceptors ...connect.Interceptor) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		chain := next
		for i := len(interceptors) - 1; i >= 0; i-- {
			chain = interceptors[i].WrapUnary(chain)
		}
		return chain
	}
}

// codeOf возвращает строковый код результата вызова
func codeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return connect.CodeOf(err).String()
}

// procedureOf возвращает имя процедуры или "unknown"
func procedureOf(req connect.AnyRequest) string {
	if p := req.Spec().Procedure; p != "" {
		return p
	}
	return "unknown"
}
