package handler

import "github.com/gorilla/mux"

// Register mounts every ledger route on router.
func Register(router *mux.Router, accounts *AccountHandler, transactions *TransactionHandler) {
	// Account routes
	router.HandleFunc("/accounts", accounts.CreateAccount).Methods("POST")
	router.HandleFunc("/accounts/{account_id}", accounts.GetAccount).Methods("GET")
	router.HandleFunc("/accounts/{account_id}", accounts.UpdateAccount).Methods("PATCH")
	router.HandleFunc("/accounts/{account_id}/deposit", accounts.Deposit).Methods("POST")
	router.HandleFunc("/accounts/{account_id}/withdraw", accounts.Withdraw).Methods("POST")
	router.HandleFunc("/accounts/{account_id}/deactivate", accounts.Deactivate).Methods("POST")
	router.HandleFunc("/accounts/{account_id}/reactivate", accounts.Reactivate).Methods("POST")

	// Owner routes
	router.HandleFunc("/owners/{owner_id}/accounts", accounts.ListOwnerAccounts).Methods("GET")
	router.HandleFunc("/owners/{owner_id}/balance", accounts.OwnerBalance).Methods("GET")
	router.HandleFunc("/owners/{owner_id}/deactivate", accounts.DeactivateOwnerAccounts).Methods("POST")

	// Ledger routes
	router.HandleFunc("/transfers", transactions.Transfer).Methods("POST")
	router.HandleFunc("/transactions/{transaction_id}", transactions.GetTransaction).Methods("GET")
	router.HandleFunc("/accounts/{account_id}/transactions", transactions.ListAccountTransactions).Methods("GET")
	router.HandleFunc("/accounts/{account_id}/transactions/between/{other_account_id}", transactions.ListBetween).Methods("GET")
	router.HandleFunc("/accounts/{account_id}/stats", transactions.Stats).Methods("GET")
	router.HandleFunc("/accounts/{account_id}/verify", transactions.Verify).Methods("GET")
}
