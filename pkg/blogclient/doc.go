// Package blogclient provides the primary entry point for constructing a
// blog API client that implements the blog.Client interface.
//
// It layers base URL normalization, the built-in request interceptors
// (request id, timing, optional rate limiting) and credential restoration on
// top of the resource interfaces defined in the blog package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/blog-client/pkg/blog"
//	  "github.com/fivetwenty-io/blog-client/pkg/blogclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := blogclient.New(ctx, &blog.Config{APIURL: "https://blog.example.com/api"})
//	  if err != nil { log.Fatal(err) }
//
//	  _, err = cli.Auth().Login(ctx, &blog.Credentials{Username: "alice", Password: "secret"})
//	  if err != nil { log.Fatal(err) }
//
//	  page, err := cli.Posts().List(ctx, blog.NewPostQuery(10))
//	  if err != nil { log.Fatal(err) }
//
//	  for _, post := range page.Posts {
//	    log.Println(post.Title)
//	  }
//	}
//
// A session saved by an earlier run is restored by setting Config.Session,
// and kept up to date by setting Config.Persister.
package blogclient
