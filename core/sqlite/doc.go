// Package sqlite wraps an embedded SQL engine with explicit connection and
// prepared statement types.
//
// The engine (by default modernc.org/sqlite, a pure Go build of SQLite)
// parses, plans and stores; this package owns the contract around it:
//
//   - Conn owns a database handle and compiles SQL into statements.
//   - Stmt owns one compiled statement and its cursor, which moves from
//     StateReady to StateHasRow on each row and back to StateReady when
//     the statement completes. Finalize makes it unusable.
//   - Parameters are bound by 1-based index or by name, only while the
//     statement is ready. Text and blobs are copied by the engine.
//   - Columns are read by 0-based index, only while a row is available.
//     NULL reads as the zero value of the requested type; IsNull tells
//     NULL from a stored zero.
//   - Every failure is an *Error carrying a ResultCode. errors.Is matches
//     a primary code against any of its extended codes.
//
// Typical use:
//
//	conn, err := sqlite.Open("app.db", sqlite.OpenDefault)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	stmt, err := conn.Prepare("SELECT name FROM users WHERE id = ?")
//	if err != nil {
//		return err
//	}
//	defer stmt.Finalize()
//
//	stmt.BindInt64(1, id)
//	for row, err := range stmt.Rows() {
//		if err != nil {
//			return err
//		}
//		name, _ := row.Text(0)
//		fmt.Println(name)
//	}
//
// Nothing is retried automatically. CodeBusy and CodeLocked failures are
// reported as they happen; IsRetryable identifies them.
package sqlite
