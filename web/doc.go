// Package web serves HTTP requests through a single registered entry point.
//
// Every request is handed, one at a time, to the callback on one dedicated
// goroutine that is registered with the thread registry as "web". The
// callback receives a *Request and answers it with one of HTML, Template,
// File, Data or Error; a callback that answers nothing yields a 500.
//
//	symbol.Register("serve", func(ctx context.Context, arg any) symbol.ExitCode {
//		req := arg.(*web.Request)
//		if name, ok := req.GetArg("name"); ok {
//			req.SetValue("name", name)
//		}
//		req.Template("hello.html")
//		return 0
//	})
//
//	srv := web.New(reg, "serve")
//	defer srv.Close()
//	srv.ListenAndServe(ctx, 8080)
package web
