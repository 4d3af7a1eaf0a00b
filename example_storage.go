package chainlog

// Example: Storage Backends
//
// The chain and its head pointer are one unit of state behind the Store
// interface. Two backends ship with the library:
//
//	┌──────────────┐        ┌──────────────────────────┐
//	│  Appender    │        │ fileStore                │
//	│              ├───────>│   chain.log  (append)    │
//	│  Verifier    │        │   head.dat   (overwrite) │
//	└──────────────┘        └──────────────────────────┘
//	        │
//	        │               ┌──────────────────────────┐
//	        └──────────────>│ sqliteStore              │
//	                        │   chain(line_no, raw)    │
//	                        │   head(id=1, hash)       │
//	                        └──────────────────────────┘
//
// File store:
//
//	store, _ := chainlog.OpenFileStore("/var/log/audit")
//	app, _ := chainlog.New(chainlog.Config{Key: key}, store)
//	app.Append("user login: alice", time.Now())
//
// The file store appends and syncs the line, then overwrites and syncs the
// head. A crash between the two writes leaves the head one entry behind;
// the next verification reports that as TAIL_TRUNCATION even though no
// tampering occurred. This is a documented limitation, detectable and
// benign.
//
// SQLite store:
//
//	store, _ := chainlog.OpenSQLiteStore("file:/var/log/audit.db")
//	app, _ := chainlog.New(chainlog.Config{Key: key}, store)
//
// Line and head share one serializable transaction, so the pair is updated
// atomically. Choose SQLite when crash consistency between store and head
// matters more than grep-ability of the log.
//
// Verification reads whichever backend the chain lives in:
//
//	v, _ := chainlog.NewVerifier(chainlog.Config{Key: key})
//	fmt.Println(v.Verify(store))          // any Store
//	fmt.Println(v.VerifyFile(             // or raw files
//	        "/var/log/audit/chain.log",
//	        "/var/log/audit/head.dat"))
//
// Output is "OK (processedLines=N)" for an intact chain, otherwise FAIL
// followed by one line per classified issue.
