// Package infra contém implementações concretas para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryStore: usuários em memória (mapa de identidade + índice de email)
//   - LimiterStore: token bucket por cliente usando golang.org/x/time/rate
//   - WriteSlots: semáforo que limita mutações simultâneas
//   - MemoryEventSink / RedisEventSink: contadores de mutações e rejeições
package infra
