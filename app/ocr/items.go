package ocr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	DefaultNameKey     = "商品名称"
	DefaultQuantityKey = "数量"
)

// Item is one line of a photographed stock list or receipt.
type Item struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// VendorError is an error reported inside a 200 response.
type VendorError struct {
	Code      string
	Message   string
	RequestID string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("ocr vendor error %s: %s", e.Code, e.Message)
}

type structuralResponse struct {
	Response struct {
		RequestId string `json:"RequestId"`
		Error     *struct {
			Code    string `json:"Code"`
			Message string `json:"Message"`
		} `json:"Error"`
		StructuralList []struct {
			Groups []struct {
				Lines []struct {
					Key struct {
						AutoName   string `json:"AutoName"`
						ConfigName string `json:"ConfigName"`
					} `json:"Key"`
					Value struct {
						AutoContent string `json:"AutoContent"`
					} `json:"Value"`
				} `json:"Lines"`
			} `json:"Groups"`
		} `json:"StructuralList"`
	} `json:"Response"`
}

// ExtractItems reduces a structural OCR reply to name/quantity pairs. Each
// group that carries nameKey yields one item; a missing or unreadable
// quantity counts as 1.
func ExtractItems(body []byte, nameKey, quantityKey string) ([]Item, string, error) {
	var sr structuralResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, "", fmt.Errorf("decode ocr response: %w", err)
	}
	if e := sr.Response.Error; e != nil {
		return nil, sr.Response.RequestId, &VendorError{Code: e.Code, Message: e.Message, RequestID: sr.Response.RequestId}
	}

	items := []Item{}
	for _, s := range sr.Response.StructuralList {
		for _, g := range s.Groups {
			var item Item
			var qty string
			for _, line := range g.Lines {
				key := line.Key.ConfigName
				if key == "" {
					key = line.Key.AutoName
				}
				value := strings.TrimSpace(line.Value.AutoContent)
				switch key {
				case nameKey:
					if item.Name == "" {
						item.Name = value
					}
				case quantityKey:
					if qty == "" {
						qty = value
					}
				}
			}
			if item.Name == "" {
				continue
			}
			item.Quantity = parseQuantity(qty)
			items = append(items, item)
		}
	}
	return items, sr.Response.RequestId, nil
}

// parseQuantity reads the leading integer of values like "12", "3件" or " 5 pcs".
func parseQuantity(s string) int64 {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) || r > unicode.MaxASCII })
	if end == -1 {
		end = len(s)
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}
