package storage

import "github.com/hongminglow/rideledger/internal/models"

// SystemCategories is the shared category catalogue every user sees. The fuel
// category comes first so it receives the first id.
func SystemCategories() []models.Category {
	sys := func(name string, t models.CategoryType, color, icon string) models.Category {
		return models.Category{Name: name, Type: t, Color: color, Icon: &icon, IsSystem: true}
	}
	return []models.Category{
		sys("Combustível", models.CategoryExpense, "#F59E0B", "gas-station"),
		sys("Manutenção do Veículo", models.CategoryExpense, "#EF4444", "car-wrench"),
		sys("Pedágios", models.CategoryExpense, "#6366F1", "road"),
		sys("Estacionamento", models.CategoryExpense, "#8B5CF6", "parking"),
		sys("Seguro do Veículo", models.CategoryExpense, "#EC4899", "shield-car"),
		sys("IPVA", models.CategoryExpense, "#14B8A6", "file-document"),
		sys("Alimentação", models.CategoryExpense, "#10B981", "food"),
		sys("Outros", models.CategoryExpense, models.DefaultCategoryColor, "dots-horizontal"),
		sys("Corridas", models.CategoryIncome, "#22C55E", "car"),
		sys("Entregas", models.CategoryIncome, "#3B82F6", "package-variant"),
		sys("Gorjetas", models.CategoryIncome, "#FBBF24", "cash"),
		sys("Bônus", models.CategoryIncome, "#A855F7", "star"),
		sys("Outros", models.CategoryIncome, models.DefaultCategoryColor, "cash-plus"),
	}
}
