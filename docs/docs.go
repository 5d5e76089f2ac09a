// Package docs регистрирует OpenAPI-описание POS API для swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/categories": {
            "get": {"tags": ["categories"], "summary": "Список категорий", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["categories"], "summary": "Создание категории", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/http.CategoryRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}}}
        },
        "/categories/{id}": {
            "get": {"tags": ["categories"], "summary": "Категория по id", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}}},
            "put": {"tags": ["categories"], "summary": "Обновление категории", "parameters": [{"$ref": "#/parameters/id"}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/http.CategoryRequest"}}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["categories"], "summary": "Удаление категории", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/suppliers": {
            "get": {"tags": ["suppliers"], "summary": "Список поставщиков", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["suppliers"], "summary": "Создание поставщика", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/http.SupplierRequest"}}], "responses": {"201": {"description": "Created"}}}
        },
        "/suppliers/{id}": {
            "get": {"tags": ["suppliers"], "summary": "Поставщик по id", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["suppliers"], "summary": "Обновление поставщика", "parameters": [{"$ref": "#/parameters/id"}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/http.SupplierRequest"}}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["suppliers"], "summary": "Удаление поставщика", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/products": {
            "get": {"tags": ["products"], "summary": "Список товаров (без архивных)", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["products"], "summary": "Регистрация нового товара", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/http.ProductRequest"}}], "responses": {"201": {"description": "Created"}, "400": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}}}
        },
        "/products/{id}": {
            "get": {"tags": ["products"], "summary": "Товар по id", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["products"], "summary": "Обновление товара", "parameters": [{"$ref": "#/parameters/id"}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/http.ProductRequest"}}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["products"], "summary": "Архивация товара", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/products/{id}/stock": {
            "get": {"tags": ["products"], "summary": "Остаток товара", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["products"], "summary": "Корректировка остатка", "parameters": [{"$ref": "#/parameters/id"}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/http.AdjustStockRequest"}}], "responses": {"200": {"description": "OK"}, "409": {"description": "Недостаточно товара", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}}}
        },
        "/sales": {
            "get": {"tags": ["sales"], "summary": "История продаж", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["sales"], "summary": "Проведение продажи",
                "parameters": [{"in": "header", "name": "Idempotency-Key", "type": "string"}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/http.CommitSaleRequest"}}],
                "responses": {"200": {"description": "Повтор с тем же ключом"}, "201": {"description": "Продажа проведена"}, "400": {"description": "Ошибка валидации"}, "404": {"description": "Товар не найден"}, "409": {"description": "Недостаточно товара"}, "422": {"description": "Итоги не сходятся"}}}
        },
        "/sales/{id}": {
            "get": {"tags": ["sales"], "summary": "Продажа по id", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}}
        },
        "/sales/{id}/share-link": {
            "get": {"tags": ["sales"], "summary": "Ссылка для отправки чека", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}}
        },
        "/dashboard": {
            "get": {"tags": ["analytics"], "summary": "Дашборд продаж", "responses": {"200": {"description": "OK"}}}
        },
        "/reports/sales.xlsx": {
            "get": {"tags": ["analytics"], "summary": "XLSX-отчёт по продажам", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "OK"}}}
        },
        "/reports": {
            "post": {"tags": ["analytics"], "summary": "Сохранение отчёта в хранилище", "responses": {"201": {"description": "Created"}}}
        }
    },
    "parameters": {
        "id": {"in": "path", "name": "id", "required": true, "type": "integer"}
    },
    "definitions": {
        "http.ErrorResponse": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "details": {"type": "object"}}},
        "http.CategoryRequest": {"type": "object", "properties": {"name": {"type": "string"}}},
        "http.SupplierRequest": {"type": "object", "properties": {"name": {"type": "string"}, "contact": {"type": "string"}, "address": {"type": "string"}}},
        "http.ProductRequest": {"type": "object", "properties": {"name": {"type": "string"}, "brand": {"type": "string"}, "cost_price": {"type": "string"}, "sell_price": {"type": "string"}, "quantity": {"type": "integer"}, "category_id": {"type": "integer"}, "supplier_id": {"type": "integer"}}},
        "http.AdjustStockRequest": {"type": "object", "properties": {"delta": {"type": "integer"}}},
        "http.CommitSaleRequest": {"type": "object", "properties": {
            "items": {"type": "array", "items": {"type": "object", "properties": {"product_id": {"type": "integer"}, "quantity_sold": {"type": "integer"}, "sell_price": {"type": "string"}, "unit_discount": {"type": "string"}, "net_price": {"type": "string"}, "total_price": {"type": "string"}}}},
            "customer": {"type": "object", "properties": {"name": {"type": "string"}, "phone": {"type": "string"}, "address": {"type": "string"}}},
            "idempotency_key": {"type": "string"}, "subtotal": {"type": "string"}, "discount_amount": {"type": "string"}, "total_amount": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "POS Backend API",
	Description:      "Каталог, проведение продаж и аналитика торговой точки.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
