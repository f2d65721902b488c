// Package users é o adapter HTTP (net/http + httprouter) do serviço de usuários.
//
// Visão geral (camadas):
//
//   - domain: entidade, erros e contratos (sem net/http)
//   - application: validação, CRUD e admissão (rate limit / concorrência)
//   - infra: store em memória, token buckets, semáforo, sinks de eventos
//   - users (este pacote): rotas, JSON, tradução de erro para status e middlewares
//
// Fluxo de uma requisição:
//
//   1) Admit extrai a chave do cliente (header/IP real); bucket vazio responde 429
//   2) mutações (POST/PUT/DELETE) ainda precisam de uma vaga de escrita, senão 503
//   3) rejeições viram eventos rate_limited / overloaded no sink
//   4) Handler decodifica o JSON e chama o UserService
//   5) Erros do domínio viram 400/404/409 com corpo padronizado
//
// Variáveis de ambiente do binário (cmd/usersvc) controlam o comportamento,
// como LISTEN_ADDR, RATE_RPS, RATE_BURST e WRITE_CONCURRENCY_MAX.
package users
