// Package crm reads license and article records from the CRM database.
//
// The CRM keeps one license per (service, institution) pair and at most one
// marketing article per service. Services without an article are represented
// by ArticleNone.
package crm
