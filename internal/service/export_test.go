package service

import "context"

type DirImports = dirImports

func (d *dirImports) Begin(dir string, queue bool) bool { return d.begin(dir, queue) }
func (d *dirImports) Finish(dir string, retry bool) bool { return d.finish(dir, retry) }
func (d *dirImports) Wait(ctx context.Context) { d.wait(ctx) }
