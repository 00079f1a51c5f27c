package catalog

// Default returns the landing page offers.
func Default() *Catalog {
	return New(
		Plan{
			ID:            "experience",
			Name:          "1 unidade",
			Subtitle:      "Primeira compra",
			OriginalPrice: "R$ 499,99",
			Price:         "R$ 399,99",
			Installments:  "ou 6x de R$ 66,67",
			Features: []string{
				"1 pote EU+ (30 porções)",
				"Frete Grátis — Envio Grátis para todo Brasil",
				"Garantia de 90 dias",
				"Acesso ao grupo VIP",
			},
			CTA:               "Comprar 1 unidade",
			Badge:             "1ª compra",
			Amount:            39999,
			StaticFallbackURL: "https://payment-link-v3.pagar.me/pl_pg04ke1QGO2R8XDLIou18PK7DqJ6M3wj",
		},
		Plan{
			ID:            "last_option",
			Name:          "2 unidades",
			Subtitle:      "Melhor custo",
			OriginalPrice: "R$ 999,98",
			Price:         "R$ 759,98 (R$ 379,99/unidade)",
			Installments:  "ou 6x de R$ 126,66",
			Features: []string{
				"2 potes EU+ (60 porções)",
				"Frete Grátis — Envio Grátis para todo Brasil",
				"Garantia 90 dias",
			},
			CTA:               "Comprar 2 unidades",
			Amount:            75998,
			StaticFallbackURL: "https://payment-link-v3.pagar.me/pl_WeM5d2G7bQrk4Y5ImQir8vYXxEoVKg3P",
		},
		Plan{
			ID:            "transformation",
			Name:          "3 unidades",
			Subtitle:      "Maior economia",
			OriginalPrice: "R$ 1.499,97",
			Price:         "R$ 1.079,97 (R$ 359,99/unidade)",
			Installments:  "ou 6x de R$ 180,00",
			Features: []string{
				"3 potes EU+ (90 porções)",
				"Frete Grátis — Envio Grátis para todo Brasil",
				"Garantia 90 dias",
				"E-book: Guia da Juventude Funcional",
				"Acesso ao grupo VIP",
			},
			Featured:          true,
			CTA:               "Comprar 3 unidades",
			Badge:             "Mais Vendido",
			Amount:            107997,
			StaticFallbackURL: "https://payment-link-v3.pagar.me/pl_LXARPNW4kJqoB2cm8FY4oM6jYEpBgO75",
		},
	)
}
