// Package domain define a entidade User, a taxonomia de erros e os contratos
// (store, eventos, admissão) do serviço de usuários.
//
// Este pacote não depende de net/http nem de implementações concretas.
// As regras de normalização e de igualdade por email vivem aqui para que
// validação, store e HTTP usem exatamente a mesma definição.
package domain
