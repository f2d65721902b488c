// Package application contém os casos de uso do serviço de usuários.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: UserService.Create valida, normaliza e persiste; Admission.Decide
// retorna uma Decision (allow/deny + retry-after) para um cliente.
package application
