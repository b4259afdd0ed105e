package entity

import "time"

// Product es la vista de catálogo que consume el motor de inventario.
// El catálogo (nombre, categoría, país, vencimiento) es un colaborador
// externo; aquí solo se leen los campos que necesitan el ledger y los
// reportes de rotación.
type Product struct {
	ID               string
	Code             string
	Name             string
	CategoryID       string
	CategoryName     string
	CountryID        string
	CountryName      string
	RegistrationDate time.Time
}
