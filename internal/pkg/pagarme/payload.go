package pagarme

// The provider accepted two payload shapes for the same cart/payment
// configuration across API versions. Both are rendered from CreateLinkRequest.

func primaryPayload(req CreateLinkRequest) map[string]interface{} {
	maxInstallments := req.MaxInstallments
	if maxInstallments <= 0 {
		maxInstallments = 1
	}
	installments := make([]map[string]interface{}, 0, maxInstallments)
	for i := 1; i <= maxInstallments; i++ {
		installments = append(installments, map[string]interface{}{
			"number": i,
			"total":  req.Item.Amount,
		})
	}

	payload := map[string]interface{}{
		"type":       "order",
		"name":       req.Name,
		"order_code": req.OrderCode,
		"payment_settings": map[string]interface{}{
			"accepted_payment_methods": []string{"pix", "credit_card"},
			"credit_card_settings": map[string]interface{}{
				"operation_type":          "auth_and_capture",
				"max_installments":        maxInstallments,
				"installments":            installments,
				"use_brand_interest_rate": false,
				"customer_fee":            false,
			},
			"pix_settings": map[string]interface{}{
				"expires_in":          86400,
				"discount":            0,
				"discount_percentage": 0,
			},
		},
		"cart_settings": map[string]interface{}{
			"items": []map[string]interface{}{
				{
					"name":             req.Item.Name,
					"amount":           req.Item.Amount,
					"default_quantity": 1,
					"shipping_cost":    0,
				},
			},
			"shipping_cost":       0,
			"shipping_total_cost": 0,
		},
		"layout_settings": map[string]interface{}{
			"hide_shipping_selector": true,
		},
	}
	if len(req.Metadata) > 0 {
		payload["metadata"] = req.Metadata
	}
	return payload
}

func alternatePayload(req CreateLinkRequest) map[string]interface{} {
	maxInstallments := req.MaxInstallments
	if maxInstallments <= 0 {
		maxInstallments = 1
	}
	payload := map[string]interface{}{
		"type":       "order",
		"name":       req.Name,
		"order_code": req.OrderCode,
		"cart_settings": map[string]interface{}{
			"items": []map[string]interface{}{
				{
					"id":         req.Item.ID,
					"title":      req.Item.Name,
					"unit_price": req.Item.Amount,
					"quantity":   1,
					"tangible":   true,
				},
			},
			"shipping_cost": 0,
		},
		"payment_config": map[string]interface{}{
			"credit_card": map[string]interface{}{
				"enabled":          true,
				"max_installments": maxInstallments,
			},
			"boleto": map[string]interface{}{
				"enabled":    true,
				"expires_in": 3,
			},
			"default_payment_method": "credit_card",
		},
	}
	if len(req.Metadata) > 0 {
		payload["metadata"] = req.Metadata
	}
	return payload
}
