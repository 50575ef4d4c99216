package main

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"
)

// searchScript runs inside the authenticated page so the session
// cookies apply; the captured header values ride along explicitly. It
// returns either an error object (non-OK status) or the flattened list
// of purchase line items.
const searchScript = `async (appID, rapAPI, token, dsid) => {
	const resp = await fetch("/api/purchase/search", {
		method: "POST",
		headers: {
			"Content-Type": "application/json",
			"X-Apple-Rap2-Api": rapAPI,
			"X-Apple-Xsrf-Token": token
		},
		credentials: "include",
		body: JSON.stringify({ adamIds: [appID], dsid: dsid })
	});

	if (!resp.ok) {
		return { error: "search request failed", status: resp.status };
	}

	const data = await resp.json();
	const purchases = data.purchases || [];
	return purchases.flatMap(p => (p.plis || []).map(pli => {
		const c = pli.localizedContent || {};
		return {
			app_name: c.nameForDisplay,
			publisher: c.detailForDisplay,
			price: pli.amountPaid
		};
	}));
}`

// findPurchases issues one authenticated search for the given product.
// A non-OK status or an empty result both mean "not found"; only a
// failed call (network fault, script throw, cancelled context) comes
// back as an error.
func findPurchases(ctx context.Context, page *rod.Page, appID string, info LoginInfo) ([]PurchaseItem, bool, error) {
	result, err := page.Context(ctx).Eval(searchScript, appID, info.RapAPI, info.Token, info.DSID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, fmt.Errorf("purchase search call failed: %w", err)
	}

	items, found := flattenPurchases(result.Value)
	return items, found, nil
}

// flattenPurchases converts the script's return value into purchase
// items. Anything that is not a list (the script's error object, or a
// reshaped response) counts as "not found" rather than a crash.
func flattenPurchases(val gson.JSON) ([]PurchaseItem, bool) {
	if _, ok := val.Val().([]interface{}); !ok {
		return nil, false
	}

	var items []PurchaseItem
	for _, entry := range val.Arr() {
		items = append(items, PurchaseItem{
			AppName:   strField(entry, "app_name"),
			Publisher: strField(entry, "publisher"),
			Price:     entry.Get("price").Val(),
		})
	}

	return items, len(items) > 0
}

func strField(j gson.JSON, key string) string {
	field := j.Get(key)
	if field.Nil() {
		return ""
	}
	return field.Str()
}
