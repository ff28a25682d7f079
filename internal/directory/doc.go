// Package directory is the operator's view of the tenant collection.
//
// A Directory holds exactly one page of clients plus the parameters that
// produced it (page, page size, search text, status filter). Every fetch is
// numbered; a response that arrives after a newer fetch was issued is
// dropped. After each load the page number is clamped into
// [1, max(1, ceil(total/pageSize))] and, if the requested page fell past
// the end, the clamped page is fetched once.
//
// Mutations (Create, Update, ToggleActive, AssignPlans) call the backend,
// journal the change and reload the current page. A failed mutation does
// neither.
package directory
